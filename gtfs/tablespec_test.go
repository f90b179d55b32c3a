package gtfs

import (
	"reflect"
	"testing"
)

var stopsTable = Table{Name: "stops", Columns: []Column{
	{"stop_id", "text"}, {"stop_code", "text"}, {"stop_name", "text"}, {"stop_lat", "text"},
}}

func TestTable_MatchColumns(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   []string
	}{
		{
			name:   "full overlap in header order",
			header: "stop_id,stop_name,stop_lat",
			want:   []string{"stop_id", "stop_name", "stop_lat"},
		},
		{
			name:   "header order wins over spec order",
			header: "stop_name,stop_id",
			want:   []string{"stop_name", "stop_id"},
		},
		{
			name:   "whitespace and quotes trimmed",
			header: ` "stop_id" , 'stop_name' `,
			want:   []string{"stop_id", "stop_name"},
		},
		{
			name:   "leading BOM stripped",
			header: "\uFEFFstop_id,stop_name",
			want:   []string{"stop_id", "stop_name"},
		},
		{
			name:   "case-insensitive match keeps canonical name",
			header: "Stop_ID,STOP_NAME",
			want:   []string{"stop_id", "stop_name"},
		},
		{
			name:   "unknown fields ignored",
			header: "stop_id,vehicle_color,stop_name",
			want:   []string{"stop_id", "stop_name"},
		},
		{
			name:   "duplicate field kept once",
			header: "stop_id,stop_id,stop_name",
			want:   []string{"stop_id", "stop_name"},
		},
		{
			name:   "zero overlap",
			header: "a,b,c",
			want:   nil,
		},
		{
			name:   "empty header",
			header: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stopsTable.MatchColumns(tt.header)
			var names []string
			for _, c := range got {
				names = append(names, c.Name)
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("MatchColumns(%q) = %v, want %v", tt.header, names, tt.want)
			}
		})
	}
}

func TestTable_MatchColumns_Idempotent(t *testing.T) {
	header := "stop_lat,stop_id,stop_name"
	first := stopsTable.MatchColumns(header)
	second := stopsTable.MatchColumns(header)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("matching is not idempotent: %v then %v", first, second)
	}
}

func TestTableSpec_Lookup(t *testing.T) {
	spec := DefaultSpec()

	if _, ok := spec.Lookup("stops.txt"); !ok {
		t.Error("stops.txt should resolve")
	}
	if _, ok := spec.Lookup("STOPS.TXT"); !ok {
		t.Error("lookup should be case-insensitive")
	}
	if _, ok := spec.Lookup("logo.png"); ok {
		t.Error("logo.png should not resolve")
	}
}

func TestDefaultSpec(t *testing.T) {
	spec := DefaultSpec()

	entries := []string{
		"agency.txt", "stops.txt", "routes.txt", "trips.txt", "stop_times.txt",
		"calendar.txt", "calendar_dates.txt", "fare_attributes.txt",
		"shapes.txt", "frequencies.txt", "transfers.txt", "feed_info.txt",
	}
	for _, e := range entries {
		tbl, ok := spec[e]
		if !ok {
			t.Errorf("missing entry %s", e)
			continue
		}
		if tbl.Name == "" || len(tbl.Columns) == 0 {
			t.Errorf("entry %s has incomplete table %+v", e, tbl)
		}
		for _, c := range tbl.Columns {
			if c.Type != "text" {
				t.Errorf("%s column %s typed %q, want text", e, c.Name, c.Type)
			}
		}
	}

	if spec["stops.txt"].Name != "stops" {
		t.Errorf("stops.txt maps to %q, want stops", spec["stops.txt"].Name)
	}
}
