package main

import (
	"os"

	"extsync/internal/app"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := app.Run(); err != nil {
		logrus.WithError(err).Error("service terminated")
		os.Exit(1)
	}
}
