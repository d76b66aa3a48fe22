package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func sample() *Dataset {
	return &Dataset{
		Students: []Student{
			{ID: "1", FirstName: "Ada", LastName: "Lovelace", Promo: "2023"},
			{ID: "2", FirstName: "Alan", LastName: "Turing", Promo: "2024"},
			{ID: "3", FirstName: "Grace", LastName: "Hopper", Promo: "2025"},
		},
		Tutoring: []Tutoring{
			{ID: "10", MentorID: "1", StudentID: "2", Family: "blue", Year: "2023/2024", Color: "#00f"},
			{ID: "11", MentorID: "2", StudentID: "3", Family: "blue", Year: "2024/2025", Color: "#00f"},
			{ID: "12", MentorID: "1", StudentID: "3", Family: "blue", Year: "2023/2024", Color: "navy"},
		},
	}
}

func TestLabels(t *testing.T) {
	l := ParseNodeLabel(JoinLabel("Ada", "Lovelace", "2023"))
	if l.First != "Ada" || l.Last != "Lovelace" || l.Promo != "2023" {
		t.Fatalf("ParseNodeLabel = %+v", l)
	}
	if got := l.Lines(); got[0] != "Ada Lovelace" || got[1] != "promo 2023" {
		t.Errorf("Lines = %q", got)
	}
	if got := DisplayLinkLabel("blue--2023/2024"); got != "blue - 2023/2024" {
		t.Errorf("DisplayLinkLabel = %q", got)
	}
	if ll := ParseLinkLabel("red"); ll.Family != "red" || ll.Year != "" {
		t.Errorf("ParseLinkLabel = %+v", ll)
	}
}

func TestPromoYear(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2023", 2023, true},
		{" 2024", 2024, true},
		{"2025b", 2025, true},
		{"-3", -3, true},
		{"b2023", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
	}
	for _, c := range cases {
		got, ok := NodeLabel{Promo: c.in}.PromoYear()
		if got != c.want || ok != c.ok {
			t.Errorf("PromoYear(%q) = %d, %v; want %d, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestKeyAcceptsNumbers(t *testing.T) {
	var s []Student
	data := `[{"id": 7, "firstName": "A", "lastName": "B", "promo": 2024}, {"id": "x", "promo": "2025"}]`
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s[0].ID != "7" || s[0].Promo != "2024" || s[1].ID != "x" {
		t.Fatalf("got %+v", s)
	}
	out, _ := json.Marshal(s[0].ID)
	if string(out) != "7" {
		t.Errorf("marshal = %s", out)
	}
}

func TestNodesAndLinks(t *testing.T) {
	ds := sample()
	nodes := ds.Nodes()
	if len(nodes) != 3 || nodes[0].Label != "Ada--Lovelace--2023" {
		t.Fatalf("nodes = %+v", nodes)
	}
	links := ds.Links()
	if links[0].Source != "1" || links[0].Target != "2" || links[0].Label != "blue--2023/2024" {
		t.Fatalf("links = %+v", links)
	}
}

func TestYearsAndFamilies(t *testing.T) {
	ds := sample()
	if got := ds.Years(); !reflect.DeepEqual(got, []string{"2023/2024", "2024/2025"}) {
		t.Errorf("Years = %v", got)
	}
	fams := ds.Families()
	if len(fams) != 2 {
		t.Fatalf("Families = %+v", fams)
	}
	if fams[0].Year != "2023/2024" || fams[0].Color != "navy" {
		t.Errorf("first family = %+v, want last colour to win", fams[0])
	}
	if c := ds.YearCounts(); c["2023/2024"] != 2 || c["2024/2025"] != 1 {
		t.Errorf("YearCounts = %v", c)
	}
}

func TestFilter(t *testing.T) {
	ds := sample()
	nodes, links := ds.Filter(AllYears)
	if len(nodes) != 3 || len(links) != 3 {
		t.Fatalf("all: %d nodes %d links", len(nodes), len(links))
	}
	nodes, links = ds.Filter("2024/2025")
	if len(links) != 1 || len(nodes) != 2 {
		t.Fatalf("2024/2025: %d nodes %d links", len(nodes), len(links))
	}
	if nodes[0].ID != "2" || nodes[1].ID != "3" {
		t.Errorf("nodes = %+v", nodes)
	}
	nodes, links = ds.Filter("1999/2000")
	if len(nodes) != 0 || len(links) != 0 {
		t.Errorf("unknown year should be empty")
	}
	if !ds.HasYear("all") || !ds.HasYear("2023/2024") || ds.HasYear("1999") {
		t.Error("HasYear mismatch")
	}
}

func TestFilterAllYearsIgnoresCase(t *testing.T) {
	ds := sample()
	for _, year := range []string{"ALL", " All ", ""} {
		if got := NormalizeYear(year); got != AllYears {
			t.Errorf("NormalizeYear(%q) = %q", year, got)
		}
		if !ds.HasYear(year) {
			t.Errorf("HasYear(%q) = false", year)
		}
		nodes, links := ds.Filter(year)
		if len(nodes) != 3 || len(links) != 3 {
			t.Errorf("Filter(%q): %d nodes %d links", year, len(nodes), len(links))
		}
	}
	if got := NormalizeYear("2023/2024"); got != "2023/2024" {
		t.Errorf("NormalizeYear kept year as %q", got)
	}
}

func TestAPIClient(t *testing.T) {
	ds := sample()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/students":
			json.NewEncoder(w).Encode(ds.Students)
		case "/tutoring":
			json.NewEncoder(w).Encode(ds.Tutoring)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	got, err := Load(context.Background(), NewAPIClient(srv.URL+"/", time.Second))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, ds) {
		t.Errorf("Load = %+v", got)
	}
}

func TestAPIClientNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Load(context.Background(), NewAPIClient(srv.URL, time.Second))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	students := filepath.Join(dir, "students.yaml")
	tutoring := filepath.Join(dir, "tutoring.json")
	os.WriteFile(students, []byte("- id: 1\n  firstName: Ada\n  lastName: Lovelace\n  promo: 2023\n"), 0o644)
	os.WriteFile(tutoring, []byte(`[{"id":1,"mentorId":1,"studentId":1,"family":"f","year":"2023/2024","color":"red"}]`), 0o644)

	ds, err := Load(context.Background(), FileSource{StudentsPath: students, TutoringPath: tutoring})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Students[0].Promo != "2023" || ds.Tutoring[0].MentorID != "1" {
		t.Errorf("got %+v", ds)
	}

	_, err = Load(context.Background(), FileSource{StudentsPath: filepath.Join(dir, "nope.json"), TutoringPath: tutoring})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "students.json")
	os.WriteFile(path, []byte("[]"), 0o644)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got := make(chan []string, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{path}, 20*time.Millisecond, func(changed []string) {
			select {
			case got <- changed:
			default:
			}
		})
	}()

	deadline := time.After(4 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case changed := <-got:
			if len(changed) != 1 || filepath.Base(changed[0]) != "students.json" {
				t.Errorf("changed = %v", changed)
			}
			cancel()
			<-done
			return
		case <-tick.C:
			// keep touching until the watcher is registered
			os.WriteFile(path, []byte(`[{"id":1}]`), 0o644)
			os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644)
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
}
