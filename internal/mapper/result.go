package mapper

// Record is one flat destination record: field name to string value.
type Record map[string]string

// ArrayRecord holds the rows produced by one array section.
type ArrayRecord struct {
	// Section is the array section name in the mapping document.
	Section string
	// Destination is the grid name the rows belong to.
	Destination string
	// Rows holds the non-empty rows in source order.
	Rows []Record
}

// Result is the output of mapping one document.
type Result struct {
	// Main holds every scalar field of the document.
	Main Record
	// Arrays holds one entry per array section that produced rows.
	Arrays []ArrayRecord
	// Buckets splits Main by destination form in multi-destination mode.
	// Every bucket carries the parent field set to PrimaryKey.
	Buckets map[string]Record
	// Parent is the parent record linking all buckets, if one is configured.
	Parent Record
	// ParentFormID is the destination of Parent.
	ParentFormID string
	// PrimaryKey correlates the main record, its buckets and its array rows.
	PrimaryKey string
}

// Array returns the array record for the given grid.
func (r *Result) Array(destination string) (ArrayRecord, bool) {
	for _, a := range r.Arrays {
		if a.Destination == destination {
			return a, true
		}
	}

	return ArrayRecord{}, false
}

// RowCount returns the total number of array rows.
func (r *Result) RowCount() int {
	n := 0
	for _, a := range r.Arrays {
		n += len(a.Rows)
	}

	return n
}
