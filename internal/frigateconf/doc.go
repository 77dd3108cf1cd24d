// Package frigateconf reads, edits and writes the Frigate config.yaml
// used by the MemryX detector setup.
//
// The file is owned jointly by this tool and the user: people edit it by
// hand, Frigate's own UI rewrites parts of it, and containers sometimes
// truncate or mangle it. The package therefore treats the file as a YAML
// node tree rather than a typed struct, so sections and camera entries
// it does not manage survive a load/save round trip byte-for-byte,
// comments included.
//
// # Document Model
//
// Document wraps the top-level mapping. Typed accessors cover the
// sections the tool edits (mqtt, detectors, model, ffmpeg.hwaccel_args,
// cameras); everything else is carried as raw nodes. Camera entries are
// exposed through CameraSet, which preserves file order across edits,
// renames and deletions.
//
// # Loading and Recovery
//
// Store.Load parses strictly first. When strict parsing fails, a
// line-oriented recovery pass reconstructs what it can: top-level scalar
// settings, camera names, stream paths, roles and tracked objects.
// Whatever recovery could not place is reported, not silently dropped:
//
//	store := frigateconf.NewStore("/opt/frigate/config/config.yaml")
//	doc, report, err := store.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if report.HasFindings() {
//	    fmt.Println(report.Summary())
//	}
//
// Camera entries that fail validation (missing stream path, placeholder
// credentials left in a template) are removed at load time and listed in
// the report.
//
// # Saving
//
// Store.Save writes atomically: the document is serialized to a temp
// file in the target directory, the previous file is copied to
// config.yaml.bak, and the temp file is renamed into place. After the
// rename the file is read back and compared against the in-memory
// document. A failed save leaves both the file and the document
// untouched.
//
// Generated output follows the conventional Frigate layout: sections
// ordered mqtt, detectors, model, cameras with version last, a blank
// line between top-level sections and before each camera entry.
//
// # Building Cameras
//
// CameraBuilder turns form input into a camera entry with the standard
// detect, snapshot and recording defaults:
//
//	name, entry, err := frigateconf.NewCameraBuilder("backyard").
//	    SetAddress("192.168.1.50").
//	    SetCredentials("admin", "secret").
//	    SetObjects("person, car").
//	    EnableRecording(7, 3).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cams := doc.Cameras()
//	cams.Set(name, entry)
//	doc.SetCameras(cams)
//
// # Watching
//
// Watcher polls the file for outside edits (mtime and size, confirmed by
// content hash) and invokes a callback so an interactive session can
// offer a reload. Suppress and Resume bracket the tool's own saves.
package frigateconf
