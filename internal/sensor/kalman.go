package sensor

// Default filter parameters for the GP2Y0A41SK0F.
const (
	defaultProcessNoise     = 0.01
	defaultMeasurementNoise = 0.1
	initialCovariance       = 1.0
	initialEstimateCM       = 15.0 // mid-range
)

// RecursiveEstimator is a one-dimensional Kalman filter over distance. State
// carries across calls for the sensor's lifetime; it is never implicitly
// reset, only reconfigured.
type RecursiveEstimator struct {
	enabled          bool
	estimate         float64
	covariance       float64
	processNoise     float64
	measurementNoise float64
}

// NewRecursiveEstimator creates an enabled estimator with default noise
// parameters and a mid-range initial estimate.
func NewRecursiveEstimator() *RecursiveEstimator {
	return &RecursiveEstimator{
		enabled:          true,
		estimate:         initialEstimateCM,
		covariance:       initialCovariance,
		processNoise:     defaultProcessNoise,
		measurementNoise: defaultMeasurementNoise,
	}
}

// Update incorporates one distance observation and returns the new estimate.
// When disabled, the measurement passes through and state is untouched.
func (e *RecursiveEstimator) Update(measurement float64) float64 {
	if !e.enabled {
		return measurement
	}

	// Predict
	e.covariance += e.processNoise

	// Update
	k := e.covariance / (e.covariance + e.measurementNoise)
	e.estimate += k * (measurement - e.estimate)
	e.covariance *= 1 - k

	return e.estimate
}

// Covariance returns the current error covariance.
func (e *RecursiveEstimator) Covariance() float64 {
	return e.covariance
}

// Estimate returns the current distance estimate.
func (e *RecursiveEstimator) Estimate() float64 {
	return e.estimate
}

// SetNoise reconfigures the process and measurement noise parameters.
func (e *RecursiveEstimator) SetNoise(processNoise, measurementNoise float64) {
	e.processNoise = processNoise
	e.measurementNoise = measurementNoise
}

// Noise returns the current process and measurement noise parameters.
func (e *RecursiveEstimator) Noise() (processNoise, measurementNoise float64) {
	return e.processNoise, e.measurementNoise
}

// SetEnabled turns the filter on or off. A disabled filter acts as identity.
func (e *RecursiveEstimator) SetEnabled(enabled bool) {
	e.enabled = enabled
}

// Enabled reports whether the filter is active.
func (e *RecursiveEstimator) Enabled() bool {
	return e.enabled
}
