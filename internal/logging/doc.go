// Package logging is the shared zap logger for both frigatemx tools.
//
// The tools are interactive terminal programs, so the logger defaults
// to silent: InitializeFromEnv emits nothing unless the
// FRIGATEMX_LOG_LEVEL environment variable names a level. At "debug"
// the tools trace discovery probe traffic, subprocess invocations, and
// config writes in full; "info" keeps just the operational events;
// "warn" and "error" narrow further.
//
//	logging.InitializeFromEnv()
//	defer logging.Sync()
//
// Log calls take zap's structured fields:
//
//	logging.Info("camera discovered",
//	    zap.String("ip", "192.168.1.100"),
//	    zap.String("manufacturer", "Dahua"))
//
// On top of the level wrappers there are helpers for the events that
// recur in this codebase. Discovery:
//
//	logging.LogProbeSent(localAddr, target, messageID)
//	logging.LogProbeResponse(source, len(data), data)
//
// Subprocess orchestration:
//
//	logging.LogCommandStart("docker", args)
//	logging.LogCommandDone("docker", exitCode, duration)
//
// Config file writes and recovery:
//
//	logging.LogConfigWrite(path, cameraCount, backupPath)
//	logging.LogConfigRecovery(path, recovered, droppedCameras)
//
// Everything here is safe for concurrent use.
package logging
