// Package device reads archives through a register-level transfer bridge,
// as found on handheld hardware where storage is reached by a
// request/response handshake rather than a file API.
//
// A Bridge exposes the registers. Open selects a slot, waits for the bridge
// to report it ready, and returns a Stream that satisfies io.ReadSeeker so
// the archive core can read from it:
//
//	s, err := device.Open(bridge, 1)
//	if err != nil {
//	    return err
//	}
//	idx, err := pka.Read(s)
//
// Every Read performs one transfer handshake. Polling blocks the caller;
// without WithMaxPolls a bridge that never completes stalls forever.
package device
