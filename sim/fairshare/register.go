// register.go wires the sim/fairshare constructors into the sim package's policy
// registry. This init() runs when any package imports sim/fairshare, breaking the
// import cycle between sim/ (interface owner) and sim/fairshare/ (implementation).
// Production code imports sim/fairshare directly; tests in package sim_test blank-import it.
package fairshare

import "github.com/procsim/procsim/sim"

func init() {
	sim.RegisterPolicy("fairshare", NewPolicy)
	sim.RegisterPolicy("ostrich", NewOstrich)
}
