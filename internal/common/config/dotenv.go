package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenvIfPresent: .env 파일이 있으면 로드합니다.
// 경로를 지정하지 않으면 ENV_FILE 환경 변수, 없으면 ./.env 순으로 찾는다.
// 이미 설정된 환경 변수는 덮어쓰지 않는다. (컨테이너 환경 우선)
func LoadDotenvIfPresent(paths ...string) error {
	if len(paths) == 0 {
		if custom := os.Getenv("ENV_FILE"); custom != "" {
			paths = []string{custom}
		} else {
			paths = []string{".env"}
		}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat dotenv file failed path=%s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load dotenv file failed path=%s: %w", path, err)
		}
	}
	return nil
}
