package main

import (
	"evstation/station"
	"log"
)

func main() {

	st, err := station.NewStation()
	if err != nil {
		log.Println("station initialization failed", err)
		return
	}
	st.Start()

}
