// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glsl is the GLSL dialect of the Gasoline backend.
//
// It targets desktop GLSL 3.30 core by default and GLSL ES 3.00 for
// OpenGL ES and WebGL:
//
//   - GLSL 3.30 Core: Desktop OpenGL 3.3+
//   - GLSL ES 3.00: WebGL 2.0, OpenGL ES 3.0
//
// # Basic Usage
//
//	out, err := glsl.Generate(req, glsl.DefaultOptions())
//
// # Render Target Flip
//
// OpenGL renders into textures upside down relative to the screen. Both
// programs declare a uniform Float internal_rt_flip, which the engine sets to
// 1 for the screen and -1 for render textures. The vertex program multiplies
// clip-space y by it and the fragment program undoes the flip when computing
// frag.screen.
package glsl
