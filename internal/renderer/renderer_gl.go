//go:build cgo

package renderer

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"go.uber.org/multierr"

	"github.com/kjkrol/gohandoff/pkg/handoff"
)

func init() {
	Register(NameGL, func(conf Config) (handoff.Renderer, error) {
		return NewGL(conf), nil
	})
}

// barShader draws a solid rectangle given in pixels. Stage defines select
// the half being compiled.
const barShader = `
#ifdef VERTEX
layout(location = 0) in vec2 aPos;
uniform vec2 uViewport;
uniform vec4 uRect;
void main() {
	vec2 px = uRect.xy + aPos * uRect.zw;
	vec2 ndc = px / uViewport * 2.0 - 1.0;
	gl_Position = vec4(ndc, 0.0, 1.0);
}
#endif
#ifdef FRAGMENT
uniform vec4 uColor;
out vec4 fragColor;
void main() {
	fragColor = uColor;
}
#endif
`

// GL clears each frame with the cycle color and draws the progress bar with
// a one-quad shader. It needs a 3.3 core context.
type GL struct {
	conf        Config
	initialized bool

	program         uint32
	quadVbo         uint32
	quadVao         uint32
	viewportUniform int32
	rectUniform     int32
	colorUniform    int32
}

func NewGL(conf Config) *GL {
	return &GL{conf: conf.withDefaults()}
}

func (r *GL) Init(_ *handoff.RenderContext) error {
	if r.initialized {
		return nil
	}
	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl.Init: %w", err)
	}
	program, err := buildProgram(barShader)
	if err != nil {
		return err
	}
	r.program = program
	r.viewportUniform = gl.GetUniformLocation(r.program, gl.Str("uViewport\x00"))
	r.rectUniform = gl.GetUniformLocation(r.program, gl.Str("uRect\x00"))
	r.colorUniform = gl.GetUniformLocation(r.program, gl.Str("uColor\x00"))
	r.initQuad()
	gl.Disable(gl.DEPTH_TEST)
	r.initialized = true
	return nil
}

func (r *GL) initQuad() {
	quad := []float32{
		0, 0,
		1, 0,
		1, 1,
		0, 0,
		1, 1,
		0, 1,
	}
	gl.GenBuffers(1, &r.quadVbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quad)*4, gl.Ptr(quad), gl.STATIC_DRAW)

	gl.GenVertexArrays(1, &r.quadVao)
	gl.BindVertexArray(r.quadVao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
}

func (r *GL) Render(rc *handoff.RenderContext, frame int) error {
	if !r.initialized {
		return fmt.Errorf("renderer: gl renderer not initialized")
	}
	logFrame(r.conf, rc, frame)

	w, h := rc.FramebufferSize()
	gl.Viewport(0, 0, int32(w), int32(h))
	c := colorToFloat(FrameColor(frame, r.conf.Period))
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)

	barWidth := float32(float64(w) * Progress(frame, r.conf.Period))
	if barWidth > 0 {
		gl.UseProgram(r.program)
		gl.Uniform2f(r.viewportUniform, float32(w), float32(h))
		gl.Uniform4f(r.rectUniform, 0, 0, barWidth, progressBarHeight)
		gl.Uniform4f(r.colorUniform, 1, 1, 1, 1)
		gl.BindVertexArray(r.quadVao)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
	}
	if err := glError(); err != nil {
		return fmt.Errorf("renderer: frame %d: %w", frame, err)
	}
	return nil
}

func (r *GL) Close() error {
	if !r.initialized {
		return nil
	}
	if r.quadVbo != 0 {
		gl.DeleteBuffers(1, &r.quadVbo)
	}
	if r.quadVao != 0 {
		gl.DeleteVertexArrays(1, &r.quadVao)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
	r.initialized = false
	return glError()
}

func buildProgram(source string) (uint32, error) {
	vertexShader, err := compileShader(gl.VERTEX_SHADER, shaderSource("VERTEX", source))
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	fragmentShader, err := compileShader(gl.FRAGMENT_SHADER, shaderSource("FRAGMENT", source))
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(vertexShader)
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, multierr.Append(fmt.Errorf("link error: %s", strings.TrimRight(log, "\x00")), glError())
	}
	return program, nil
}

func shaderSource(stage, source string) string {
	var sb strings.Builder
	sb.WriteString("#version 330 core\n")
	sb.WriteString("#define " + stage + "\n")
	sb.WriteString(source)
	if !strings.HasSuffix(source, "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}

func compileShader(shaderType uint32, source string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile error: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func glError() error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%x", code)
	}
	return nil
}
