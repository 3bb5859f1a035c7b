package domain

// SourceField is the container key that holds a document's source content
// in both normalized and expected documents.
const SourceField = "_source"

// MetadataField is a reserved document attribute carried in the execution
// envelope rather than in the document source.
type MetadataField string

const (
	MetaIndex         MetadataField = "_index"
	MetaType          MetadataField = "_type"
	MetaID            MetadataField = "_id"
	MetaRouting       MetadataField = "_routing"
	MetaVersion       MetadataField = "_version"
	MetaVersionType   MetadataField = "_version_type"
	MetaIfSeqNo       MetadataField = "_if_seq_no"
	MetaIfPrimaryTerm MetadataField = "_if_primary_term"
)

// MetadataFields lists every metadata field in envelope order.
var MetadataFields = []MetadataField{
	MetaIndex,
	MetaType,
	MetaID,
	MetaRouting,
	MetaVersion,
	MetaVersionType,
	MetaIfSeqNo,
	MetaIfPrimaryTerm,
}

func (f MetadataField) Valid() bool {
	switch f {
	case MetaIndex, MetaType, MetaID, MetaRouting, MetaVersion,
		MetaVersionType, MetaIfSeqNo, MetaIfPrimaryTerm:
		return true
	}
	return false
}

// IsMetadataField reports whether name is one of the reserved metadata keys.
func IsMetadataField(name string) bool {
	return MetadataField(name).Valid()
}
