/*package phys contains the physical constants used by picdiag, in SI units.
*/
package phys

const (
	// C is the speed of light in m/s.
	C = 299792458.0
	// ElectronMass is in kg.
	ElectronMass = 9.1093837015e-31
	// ProtonMass is in kg.
	ProtonMass = 1.67262192369e-27
)
