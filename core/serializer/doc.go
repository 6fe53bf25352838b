// Package serializer turns model records into JSON:API compound documents.
//
// A Serializer is bound to one resource type through an immutable
// Definition: the ordered attribute names, has-one relation names and
// has-many relation names it exposes. Formatting a record reads its primary
// key and attribute snapshot, resolves every declared relation through the
// Model interface and emits a resource object whose relationships carry
// resource linkage. When inclusion paths are requested the related records
// are formatted by the serializer registered for the relation's target type
// and collected, deduplicated by (type, id), into the document's included
// member.
//
// Relation resolution fans out with errgroup. Results are written back by
// index, so attribute order, relationship order, collection order and
// included order never depend on completion timing.
package serializer
