package revision

import "runtime/debug"

// Revision is the VCS revision the binary was built from, or "unknown".
var Revision = "unknown"

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			Revision = setting.Value
			if len(Revision) > 7 {
				Revision = Revision[:7]
			}
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if modified {
		Revision += "-dirty"
	}
}
