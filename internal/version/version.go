package version

// Version is stamped at build time:
//
//	go build -ldflags "-X pyscan/internal/version.Version=v1.2.3"
var Version = "dev"
