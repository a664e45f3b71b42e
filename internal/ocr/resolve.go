package ocr

import "fmt"

// Resolution is the outcome of engine selection. Warning carries a
// human-readable note when the requested engine was unavailable and a
// fallback was substituted; callers log it once at startup.
type Resolution struct {
	Engine  Engine
	Name    string
	Warning string
}

// Resolve picks an OCR engine for the configured choice. "auto" tries
// tesseract first and degrades to the stub; an explicit "tesseract" that
// cannot be satisfied also degrades to the stub rather than failing startup,
// since indexing without real OCR is still more useful than no indexing.
func Resolve(choice, tesseractCmd, lang string) (Resolution, error) {
	switch choice {
	case "stub":
		return Resolution{Engine: NewStubEngine(), Name: "stub"}, nil

	case "tesseract", "auto", "":
		engine, err := NewTesseractEngine(tesseractCmd, lang)
		if err == nil {
			return Resolution{Engine: engine, Name: engine.Name()}, nil
		}
		return Resolution{
			Engine:  NewStubEngine(),
			Name:    "stub",
			Warning: fmt.Sprintf("tesseract unavailable, using stub OCR: %v", err),
		}, nil

	default:
		return Resolution{}, fmt.Errorf("unknown OCR engine %q (want tesseract, stub, or auto)", choice)
	}
}
