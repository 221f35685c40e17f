package main

import (
	"github.com/eleven-am/sight-backend/internal/bootstrap"
)

func main() {
	bootstrap.Run()
}
