package config

import "os"

func IsDebug() bool {
	return os.Getenv("MENTORBOT_DEBUG") == "1"
}
