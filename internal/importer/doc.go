// Package importer reads students from a spreadsheet and creates them
// through the records service.
//
// The first sheet is read and its first row is the header. When the
// header holds the exact columns "Nom", "Prénom" and "CNE" every data row
// is taken as is. Otherwise headers are matched case-insensitively and
// rows missing a value are dropped.
//
// Only Office Open XML workbooks (.xlsx, .xlsm) are supported.
package importer
