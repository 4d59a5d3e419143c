//go:build js && wasm

package main

import (
	"image"
	"syscall/js"
)

func canvasContext() js.Value {
	canvas := js.Global().Get("document").Call("getElementById", "myCanvas")
	return canvas.Call("getContext", "2d")
}

func initCanvas(width, height int, color string) {
	canvas := js.Global().Get("document").Call("getElementById", "myCanvas")
	canvas.Set("width", width)
	canvas.Set("height", height)

	ctx := canvas.Call("getContext", "2d")
	ctx.Set("fillStyle", color)
	ctx.Call("fillRect", 0, 0, width, height)
}

// drawToCanvas puts img on the canvas at img.Rect.Min.
func drawToCanvas(img *image.RGBA) {
	jsData := js.Global().Get("Uint8ClampedArray").New(len(img.Pix))
	js.CopyBytesToJS(jsData, img.Pix)

	imageData := js.Global().Get("ImageData").New(jsData, img.Rect.Dx(), img.Rect.Dy())
	canvasContext().Call("putImageData", imageData, img.Rect.Min.X, img.Rect.Min.Y)
}
