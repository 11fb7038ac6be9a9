package constants

// Permission claims carried in operator JWTs.
const (
	// PermAny matches any authenticated caller.
	PermAny = "any"

	// PermOperator grants menu management and order monitoring.
	PermOperator = "canteen.operator"
)
