package loader

// schemaColumns is the declared logical shape of emitted records. The names
// are declarative only: flattened records carry the provider's dotted paths
// ("headline.main", "_id"), and mapping between the two is left to the
// downstream consumer.
var schemaColumns = [...]string{
	"title",
	"body",
	"created_at",
	"id",
	"summary",
	"abstract",
	"keywords",
}

// Schema returns the ordered column names of the dataset.
func (s *Source) Schema() []string {
	columns := make([]string, len(schemaColumns))
	copy(columns, schemaColumns[:])
	return columns
}
