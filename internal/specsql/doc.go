// Package specsql compiles spec trees to parameterized SQL WHERE fragments
// over the node tables.
//
// A fragment is a template with "?" placeholders and the ordered parameter
// list, left to right. Values are never interpolated into the template.
// Fragments reference the enclosing node table by SQLCompiler.Table.
package specsql
