package themes

// Builtin exposes the last-resort theme to the external tests.
var Builtin = builtin
