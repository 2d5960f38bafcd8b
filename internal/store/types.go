package store

// IndexRun records one indexing cell collection.
type IndexRun struct {
	ID             string   `json:"id"`
	DefinitionHash string   `json:"definition_hash"`
	TermHash       string   `json:"term_hash"`
	IndexKey       string   `json:"index_key"`
	Cells          []string `json:"cells"` // label paths, in collection order
	Seq            int64    `json:"seq"`   // assigned by the store on write
}
