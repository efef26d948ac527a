// GoNotify turns task events into inbox notifications and delivers them by email.
package main

import (
	"context"

	"github.com/shandysiswandi/gonotify/internal/app"
)

func main() {
	application := app.New()
	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	defer cancel()

	application.Stop(ctx)
}
