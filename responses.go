package rest

type Count struct {
	Count int64 `json:"count"`
} // @name CountResponse

// Removed lists the child ids a destroyed association detached from its
// parent.
type Removed struct {
	Count int   `json:"count"`
	IDs   []any `json:"ids"`
} // @name RemovedResponse
