package specsearch

// Document field names.
const (
	FieldID               = "id"
	FieldCode             = "code"
	FieldURI              = "uri"
	FieldNumber           = "number"
	FieldTypeID           = "type.id"
	FieldGraphID          = "type.graph.id"
	FieldCreatedDate      = "createdDate"
	FieldLastModifiedDate = "lastModifiedDate"

	// FieldReferences lists the reference attribute ids a node has values for.
	FieldReferences = "references"

	// FieldReferrers lists the reference attribute ids other nodes use to
	// reference the node.
	FieldReferrers = "referrers"

	// TextGroup is the sub-document holding analyzed text fields.
	TextGroup = "text"

	// StringGroup prefixes keyword copies of text values.
	StringGroup = "string"
)

// TextField is the analyzed field of attr, optionally narrowed to lang.
func TextField(attr, lang string) string {
	return TextGroup + "." + TextKey(attr, lang)
}

// TextKey is the key of attr inside the text sub-document.
func TextKey(attr, lang string) string {
	if lang == "" {
		return attr
	}
	return attr + "." + lang
}

// StringField is the keyword field of attr, optionally narrowed to lang.
func StringField(attr, lang string) string {
	f := StringGroup + "." + attr
	if lang != "" {
		f += "." + lang
	}
	return f
}

// ReferenceField is the keyword field holding referenced node UUIDs.
func ReferenceField(attr string) string {
	return FieldReferences + "." + attr + ".id"
}

// ReferenceNodeField is the keyword field holding the full ids of referenced
// nodes, in NodeID text form.
func ReferenceNodeField(attr string) string {
	return FieldReferences + "." + attr + ".node"
}
