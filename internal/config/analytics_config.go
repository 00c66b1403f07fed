package config

const (
	pixelBaseURLEnvVar    = "PIXEL_BASE_URL"
	pixelAPIVersionEnvVar = "PIXEL_API_VERSION"
)

type Analytics struct{}

var _ AnalyticsConfig = Analytics{}

// GetPixelBaseURL returns "" when unset, leaving the tracker default in place.
func (Analytics) GetPixelBaseURL() string {
	return GetEnv(pixelBaseURLEnvVar, "")
}

func (Analytics) GetPixelAPIVersion() string {
	return GetEnv(pixelAPIVersionEnvVar, "")
}
