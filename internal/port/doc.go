// Package port implements mediator discovery by loopback port probing.
//
// Every browser running the tab extension starts a mediator that listens
// on the first free port of a small fixed window:
//
//	4625, 4626, … 4634   (DefaultBasePort, DefaultWindow)
//
// The Scanner dials each port of the window concurrently with a short
// timeout (DefaultTimeout) and reports the ones that accept a connection,
// in ascending port order. A closed port is not an error: it just means
// no browser is using that slot right now.
package port
