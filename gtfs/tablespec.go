package gtfs

import "strings"

// Column is one destination column: its canonical name and the SQL type
// it is created with.
type Column struct {
	Name string
	Type string
}

// Table describes the destination of one archive entry.
type Table struct {
	Name    string
	Columns []Column
}

// TableSpec maps archive entry names (lowercase) to destination tables.
// Entries absent from the map are ignored by the loader. The spec is
// read-only input; the loader never mutates it.
type TableSpec map[string]Table

// Lookup resolves an archive entry name against the spec.
func (s TableSpec) Lookup(entryName string) (Table, bool) {
	t, ok := s[strings.ToLower(entryName)]
	return t, ok
}

// MatchColumns intersects a raw header line with the table's declared
// columns. Header fields are split on commas and stripped of
// whitespace, surrounding quotes and a leading UTF-8 BOM; matching is
// case-insensitive; the result keeps the header's left-to-right order
// and the spec's canonical column names; a header field matching an
// already-matched column is dropped. An empty result means the entry
// cannot be loaded.
func (t Table) MatchColumns(header string) []Column {
	var out []Column
	seen := make(map[string]bool, len(t.Columns))
	for _, field := range strings.Split(header, ",") {
		name := normalizeField(field)
		if name == "" {
			continue
		}
		for _, c := range t.Columns {
			if strings.EqualFold(c.Name, name) && !seen[c.Name] {
				out = append(out, c)
				seen[c.Name] = true
				break
			}
		}
	}
	return out
}

func normalizeField(f string) string {
	f = strings.TrimSpace(f)
	f = strings.TrimPrefix(f, "\uFEFF")
	f = strings.Trim(f, `"'`)
	return strings.TrimSpace(f)
}

// DefaultSpec returns the standard GTFS table set. Every column is
// declared text: feeds routinely leave conditionally-required fields
// empty, and the force-not-null bulk load stores those as empty
// strings, which only a text column accepts.
func DefaultSpec() TableSpec {
	return TableSpec{
		"agency.txt": {Name: "agency", Columns: []Column{
			{"agency_id", "text"}, {"agency_name", "text"}, {"agency_url", "text"},
			{"agency_timezone", "text"}, {"agency_lang", "text"}, {"agency_phone", "text"},
			{"agency_fare_url", "text"}, {"agency_email", "text"},
		}},
		"stops.txt": {Name: "stops", Columns: []Column{
			{"stop_id", "text"}, {"stop_code", "text"}, {"stop_name", "text"},
			{"tts_stop_name", "text"}, {"stop_desc", "text"}, {"stop_lat", "text"},
			{"stop_lon", "text"}, {"zone_id", "text"}, {"stop_url", "text"},
			{"location_type", "text"}, {"parent_station", "text"}, {"stop_timezone", "text"},
			{"wheelchair_boarding", "text"}, {"level_id", "text"}, {"platform_code", "text"},
		}},
		"routes.txt": {Name: "routes", Columns: []Column{
			{"route_id", "text"}, {"agency_id", "text"}, {"route_short_name", "text"},
			{"route_long_name", "text"}, {"route_desc", "text"}, {"route_type", "text"},
			{"route_url", "text"}, {"route_color", "text"}, {"route_text_color", "text"},
			{"route_sort_order", "text"}, {"continuous_pickup", "text"},
			{"continuous_drop_off", "text"}, {"network_id", "text"},
		}},
		"trips.txt": {Name: "trips", Columns: []Column{
			{"route_id", "text"}, {"service_id", "text"}, {"trip_id", "text"},
			{"trip_headsign", "text"}, {"trip_short_name", "text"}, {"direction_id", "text"},
			{"block_id", "text"}, {"shape_id", "text"}, {"wheelchair_accessible", "text"},
			{"bikes_allowed", "text"},
		}},
		"stop_times.txt": {Name: "stop_times", Columns: []Column{
			{"trip_id", "text"}, {"arrival_time", "text"}, {"departure_time", "text"},
			{"stop_id", "text"}, {"location_group_id", "text"}, {"location_id", "text"},
			{"stop_sequence", "text"}, {"stop_headsign", "text"},
			{"start_pickup_drop_off_window", "text"}, {"end_pickup_drop_off_window", "text"},
			{"pickup_type", "text"}, {"drop_off_type", "text"}, {"continuous_pickup", "text"},
			{"continuous_drop_off", "text"}, {"shape_dist_traveled", "text"},
			{"timepoint", "text"}, {"pickup_booking_rule_id", "text"},
			{"drop_off_booking_rule_id", "text"},
		}},
		"calendar.txt": {Name: "calendar", Columns: []Column{
			{"service_id", "text"}, {"monday", "text"}, {"tuesday", "text"},
			{"wednesday", "text"}, {"thursday", "text"}, {"friday", "text"},
			{"saturday", "text"}, {"sunday", "text"}, {"start_date", "text"},
			{"end_date", "text"},
		}},
		"calendar_dates.txt": {Name: "calendar_dates", Columns: []Column{
			{"service_id", "text"}, {"date", "text"}, {"exception_type", "text"},
		}},
		"fare_attributes.txt": {Name: "fare_attributes", Columns: []Column{
			{"fare_id", "text"}, {"price", "text"}, {"currency_type", "text"},
			{"payment_method", "text"}, {"transfers", "text"}, {"agency_id", "text"},
			{"transfer_duration", "text"},
		}},
		"shapes.txt": {Name: "shapes", Columns: []Column{
			{"shape_id", "text"}, {"shape_pt_lat", "text"}, {"shape_pt_lon", "text"},
			{"shape_pt_sequence", "text"}, {"shape_dist_traveled", "text"},
		}},
		"frequencies.txt": {Name: "frequencies", Columns: []Column{
			{"trip_id", "text"}, {"start_time", "text"}, {"end_time", "text"},
			{"headway_secs", "text"}, {"exact_times", "text"},
		}},
		"transfers.txt": {Name: "transfers", Columns: []Column{
			{"from_stop_id", "text"}, {"to_stop_id", "text"}, {"from_route_id", "text"},
			{"to_route_id", "text"}, {"from_trip_id", "text"}, {"to_trip_id", "text"},
			{"transfer_type", "text"}, {"min_transfer_time", "text"},
		}},
		"feed_info.txt": {Name: "feed_info", Columns: []Column{
			{"feed_publisher_name", "text"}, {"feed_publisher_url", "text"},
			{"feed_lang", "text"}, {"default_lang", "text"}, {"feed_start_date", "text"},
			{"feed_end_date", "text"}, {"feed_version", "text"},
			{"feed_contact_email", "text"}, {"feed_contact_url", "text"},
		}},
	}
}
