package config

type NavigationConfig interface {
	GetLoginPath() string
	GetHomePath() string
	GetProtectedPaths() []string
}

type Navigation struct{}

var _ NavigationConfig = Navigation{}

func (Navigation) GetLoginPath() string {
	return GetEnv("LOGIN_PATH", "/Login")
}

func (Navigation) GetHomePath() string {
	return GetEnv("HOME_PATH", "/")
}

func (Navigation) GetProtectedPaths() []string {
	return GetEnvList("PROTECTED_PATHS", []string{"/Profile", "/Dashboard", "/history", "/settings"})
}
