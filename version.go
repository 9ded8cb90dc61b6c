package vivah

// Version is the library version, overridable at build time via
// -ldflags "-X github.com/sangamhq/vivah.Version=...".
var Version = "0.1.0"
