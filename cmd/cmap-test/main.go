package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/BeatGlow/cmap/conn"
)

func main() {
	displayFlag := flag.String("display", "", "X display (default: $DISPLAY)")
	flag.Parse()

	c, err := conn.OpenX11(*displayFlag)
	if err != nil {
		log.Fatalln("open failed: ", err)
	}
	fmt.Println("connected using", c)
	fmt.Printf("default colormap: %#x\n", c.DefaultColormap())

	class := c.DefaultVisualClass()
	fmt.Printf("default visual: %s (writable cells: %t)\n", conn.VisualClassName(class), conn.Writable(class))
	if err = c.Close(); err != nil {
		log.Fatalln("close failed: ", err)
	}
}
