package gtfs2neo4j

// Graph labels
const (
	LabelAgency   = "Agency"
	LabelRoute    = "Route"
	LabelTrip     = "Trip"
	LabelStop     = "Stop"
	LabelStopTime = "StopTime"
)

// Relationship types
const (
	RelOperates   = "OPERATES"
	RelUses       = "USES"
	RelPartOf     = "PART_OF"
	RelPartOfTrip = "PART_OF_TRIP"
	RelLocatedAt  = "LOCATED_AT"
	RelPrecedes   = "PRECEDES"
)

type SchemaKind int

const (
	UniqueConstraint SchemaKind = iota
	PropertyIndex
)

func (k SchemaKind) String() string {
	switch k {
	case UniqueConstraint:
		return "constraint"
	case PropertyIndex:
		return "index"
	default:
		return "unknown"
	}
}

// SchemaDecl is a single constraint or index on Label.Property.
type SchemaDecl struct {
	Kind     SchemaKind
	Label    string
	Property string
}

func (d SchemaDecl) String() string {
	return d.Kind.String() + " " + d.Label + "." + d.Property
}

var graphSchema = []SchemaDecl{
	{Kind: UniqueConstraint, Label: LabelTrip, Property: "trip_id"},
	{Kind: UniqueConstraint, Label: LabelRoute, Property: "route_id"},
	{Kind: UniqueConstraint, Label: LabelAgency, Property: "agency_id"},
	{Kind: UniqueConstraint, Label: LabelStop, Property: "stop_id"},
	{Kind: PropertyIndex, Label: LabelTrip, Property: "service_id"},
	{Kind: PropertyIndex, Label: LabelStopTime, Property: "stop_sequence"},
	{Kind: PropertyIndex, Label: LabelStop, Property: "name"},
}

type fieldKind int

const (
	textField fieldKind = iota
	intField
	floatField
	boolField
	// idField is an identifier the public schema declares numeric. Integral
	// values become int64, anything else stays text.
	idField
)

func (k fieldKind) String() string {
	switch k {
	case textField:
		return "text"
	case intField:
		return "integer"
	case floatField:
		return "float"
	case boolField:
		return "bool"
	case idField:
		return "id"
	default:
		return "unknown"
	}
}

type fieldSchema struct {
	Column   string
	Property string
	Kind     fieldKind
	Required bool
}

type tableSchema struct {
	File   string
	Label  string
	Fields []fieldSchema
}

var (
	agencyTable = tableSchema{
		File:  "agency.txt",
		Label: LabelAgency,
		Fields: []fieldSchema{
			{Column: "agency_id", Property: "agency_id", Kind: idField},
			{Column: "agency_name", Property: "name", Required: true},
			{Column: "agency_url", Property: "url", Required: true},
			{Column: "agency_timezone", Property: "timezone", Required: true},
			{Column: "agency_lang", Property: "language"},
			{Column: "agency_phone", Property: "phone"},
			{Column: "agency_fare_url", Property: "fare_url"},
			{Column: "agency_email", Property: "email"},
		},
	}

	routesTable = tableSchema{
		File:  "routes.txt",
		Label: LabelRoute,
		Fields: []fieldSchema{
			{Column: "route_id", Property: "route_id", Required: true},
			{Column: "agency_id", Property: "agency_id", Kind: idField},
			{Column: "route_short_name", Property: "short_name"},
			{Column: "route_long_name", Property: "long_name"},
			{Column: "route_desc", Property: "desc"},
			{Column: "route_type", Property: "type", Kind: intField, Required: true},
			{Column: "route_url", Property: "url"},
			{Column: "route_color", Property: "color"},
			{Column: "route_text_color", Property: "text_color"},
			{Column: "route_sort_order", Property: "sort_order", Kind: intField},
		},
	}

	tripsTable = tableSchema{
		File:  "trips.txt",
		Label: LabelTrip,
		Fields: []fieldSchema{
			{Column: "trip_id", Property: "trip_id", Kind: idField, Required: true},
			{Column: "route_id", Property: "route_id", Required: true},
			{Column: "service_id", Property: "service_id", Kind: idField, Required: true},
			{Column: "trip_headsign", Property: "headsign"},
			{Column: "trip_short_name", Property: "short_name"},
			{Column: "direction_id", Property: "direction_id", Kind: intField},
			{Column: "block_id", Property: "block_id"},
			{Column: "shape_id", Property: "shape_id"},
			{Column: "wheelchair_accessible", Property: "wheelchair_accessible"},
			{Column: "bikes_allowed", Property: "bikes_allowed"},
			{Column: "exceptional", Property: "exceptional", Kind: boolField},
		},
	}

	stopsTable = tableSchema{
		File:  "stops.txt",
		Label: LabelStop,
		Fields: []fieldSchema{
			{Column: "stop_id", Property: "stop_id", Required: true},
			{Column: "stop_code", Property: "code"},
			{Column: "stop_name", Property: "name"},
			{Column: "stop_desc", Property: "desc"},
			{Column: "stop_lat", Property: "latitude", Kind: floatField},
			{Column: "stop_lon", Property: "longitude", Kind: floatField},
			{Column: "zone_id", Property: "zone_id", Kind: idField},
			{Column: "stop_url", Property: "url"},
			{Column: "location_type", Property: "location_type"},
			{Column: "parent_station", Property: "parent_station"},
			{Column: "stop_timezone", Property: "timezone"},
			{Column: "wheelchair_boarding", Property: "wheelchair_boarding", Kind: intField},
			{Column: "platform_code", Property: "platform_code"},
		},
	}

	stopTimesTable = tableSchema{
		File:  "stop_times.txt",
		Label: LabelStopTime,
		Fields: []fieldSchema{
			{Column: "trip_id", Property: "trip_id", Kind: idField, Required: true},
			{Column: "stop_sequence", Property: "stop_sequence", Kind: intField, Required: true},
			{Column: "arrival_time", Property: "arrival_time"},
			{Column: "departure_time", Property: "departure_time"},
			{Column: "stop_id", Property: "stop_id", Required: true},
			{Column: "stop_headsign", Property: "headsign"},
			{Column: "pickup_type", Property: "pickup_type"},
			{Column: "drop_off_type", Property: "drop_off_type"},
			{Column: "shape_dist_traveled", Property: "shape_dist_traveled", Kind: floatField},
			{Column: "timepoint", Property: "timepoint"},
		},
	}
)

// requiredTables are checked before any phase runs.
var requiredTables = []tableSchema{agencyTable, routesTable, tripsTable, stopsTable, stopTimesTable}
