package version

// mainpkg is the canonical import path under which rededup was built.
var mainpkg = "github.com/sherwoodwang/rededup"

// version is the version of the running binary. Overwritten at link
// time via -ldflags for release builds.
var version = "v0.0.0+unknown"

// revision is the VCS revision the program was built from, filled in
// at link time.
var revision = ""
