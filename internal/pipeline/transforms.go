package pipeline

import "github.com/MeKo-Tech/stylizer/internal/style"

var defaultRunner = NewRunner(Options{})

// PencilSketch renders in as a graphite sketch and writes it to out.
func PencilSketch(in, out string) bool { return defaultRunner.Transform(style.Pencil, in, out) }

// OilPainting renders in as an oil painting and writes it to out.
func OilPainting(in, out string) bool { return defaultRunner.Transform(style.Oil, in, out) }

// Cartoon2D renders in as a flat 2D cartoon and writes it to out.
func Cartoon2D(in, out string) bool { return defaultRunner.Transform(style.Cartoon2D, in, out) }

// Cartoon3D renders in as a shaded 3D cartoon and writes it to out.
func Cartoon3D(in, out string) bool { return defaultRunner.Transform(style.Cartoon3D, in, out) }

// Comic renders in as a comic-book panel and writes it to out.
func Comic(in, out string) bool { return defaultRunner.Transform(style.Comic, in, out) }

// Anime renders in as an anime cel and writes it to out.
func Anime(in, out string) bool { return defaultRunner.Transform(style.Anime, in, out) }
