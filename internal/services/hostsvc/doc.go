// Package hostsvc abstracts daemon process supervision behind a capability
// interface.
//
// The process variant launches and terminates a detached daemon itself. The
// external variant hands ownership to an outside supervisor: start runs the
// daemon in the foreground and never detaches, and stop only asks politely
// over the control socket. Callers pick a variant with New and treat the
// result uniformly.
package hostsvc
