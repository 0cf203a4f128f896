package version

// Framework is the version of the shopfront scaffold reported in logs and metrics.
const Framework = "v0.3.0"
