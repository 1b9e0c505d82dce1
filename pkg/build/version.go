package build

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sfmovies/locations-service/pkg/internal/revision"
)

var (
	// version is the built version.
	// Set with ldflags via -ldflags="-X github.com/sfmovies/locations-service/pkg/build.version=v{{.Version}}".
	version string
	// Version returns the current version of the service
	Version string
	// UserAgent is the user agent used for HTTP requests
	UserAgent string
)

const (
	defaultVersion string = "v0.0.0"       // Default version if not set by ldflags
	versionFile    string = "version.json" // Version file path
)

func init() {
	if version == "" {
		// in development, fall back to the version.json file
		var err error
		version, err = readVersionFromFile()
		if err != nil {
			version = defaultVersion
		}
	}

	Version = fmt.Sprintf("%s-%s", version, revision.Revision)
	UserAgent = fmt.Sprintf("locations-service/%s", Version)
}

type versionJSON struct {
	Version string `json:"version"`
}

func readVersionFromFile() (string, error) {
	file, err := os.Open(versionFile)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var vJSON versionJSON
	if err := json.NewDecoder(file).Decode(&vJSON); err != nil {
		return "", err
	}
	return vJSON.Version, nil
}
