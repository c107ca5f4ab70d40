package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	DestinationsDir string
	Port            string
	BaseUrl         string
	WorkerCount     int
	APIAccessKey    string

	// AI rewriting configuration
	AIEndpoint    string
	AIAccessKey   string
	AIModel       string
	AIMaxTokens   int
	AITemperature float64

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
