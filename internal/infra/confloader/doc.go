// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first: defaults supplied as a map, a YAML
// file, then BANKMESH_ environment variables. A double underscore in an
// environment variable separates sections, so
// BANKMESH_SERVER__MAX_MESSAGE_SIZE sets server.max_message_size.
//
// Watcher reports writes to the loaded file so selected settings can be
// reapplied without a restart.
package confloader
