// Package capture turns a camera, or frames pushed by a host, into a stream
// of frames processed one at a time.
//
// Intake never queues more than one pending frame. A frame that arrives
// while another is pending is dropped.
package capture
