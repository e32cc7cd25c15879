package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/ignatzorin/mentorhub-backend/internal/logger"
)

// SafeGo запускает горутину с обработкой panic.
// Используется для фоновой работы, которая не должна ронять процесс:
// публикация в очередь модерации, асинхронное закрытие ws-клиентов.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if logger.Log != nil {
					logger.Log.Errorf("panic в горутине: %v\nstack:\n%s", r, debug.Stack())
				}
			}
		}()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	SafeGo(func() { fn(ctx) })
}
