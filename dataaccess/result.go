package dataaccess

import "github.com/xompass/vsaas-dal/database"

// Result holds either one record (Single) or a list of records.
type Result struct {
	Single  bool
	Record  database.Record
	Records []database.Record
}

func singleResult(record database.Record) Result {
	return Result{Single: true, Record: record}
}

func listResult(records []database.Record) Result {
	if records == nil {
		records = []database.Record{}
	}
	return Result{Records: records}
}

// Value returns the record, nil when a single record was not found, or the
// list of records.
func (r Result) Value() any {
	if r.Single {
		if r.Record == nil {
			return nil
		}
		return r.Record
	}
	return r.Records
}

// Len returns how many records the result holds.
func (r Result) Len() int {
	if r.Single {
		if r.Record == nil {
			return 0
		}
		return 1
	}
	return len(r.Records)
}

// List returns the records of the result as a slice, whatever its shape.
func (r Result) List() []database.Record {
	if r.Single {
		if r.Record == nil {
			return []database.Record{}
		}
		return []database.Record{r.Record}
	}
	return r.Records
}

// IDs returns the primary keys of the records, in order.
func (r Result) IDs() []any {
	records := r.List()
	ids := make([]any, 0, len(records))
	for _, record := range records {
		if id, ok := record[database.ID]; ok && id != nil {
			ids = append(ids, id)
		}
	}
	return ids
}
