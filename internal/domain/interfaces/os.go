package interfaces

import (
	"context"
	"time"
)

// CommandExecutor는 시스템 명령을 실행하는 인터페이스입니다
type CommandExecutor interface {
	// Execute는 명령을 실행하고 결과를 반환합니다
	Execute(ctx context.Context, command string, args ...string) ([]byte, error)

	// ExecuteWithTimeout은 타임아웃을 적용하여 명령을 실행합니다
	ExecuteWithTimeout(ctx context.Context, timeout time.Duration, command string, args ...string) ([]byte, error)
}

// FileSystem은 파일 시스템 작업을 추상화하는 인터페이스입니다
type FileSystem interface {
	// ReadFile은 파일을 읽습니다
	ReadFile(path string) ([]byte, error)

	// Exists는 파일이나 디렉토리가 존재하는지 확인합니다
	Exists(path string) bool
}

// Clock은 시간 관련 작업을 추상화하는 인터페이스입니다
type Clock interface {
	// Now는 현재 시간을 반환합니다
	Now() time.Time
}
