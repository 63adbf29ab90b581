package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-ocean/engine/camera"
	"github.com/Carmen-Shannon/oxy-ocean/engine/light"
	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter combines the parser and the extractors to turn a glTF document into a scene.
type gltfImporter interface {
	// Import loads a glTF/GLB file and builds a scene from its default scene.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - scene.Scene: the imported scene
	//   - error: error if import fails
	Import(path string) (scene.Scene, error)

	// ImportReader loads a glTF document from a reader. External buffer URIs are resolved
	// against the working directory.
	//
	// Parameters:
	//   - name: the scene name
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data, false for glTF JSON
	//
	// Returns:
	//   - scene.Scene: the imported scene
	//   - error: error if import fails
	ImportReader(name string, r io.Reader, isGLB bool) (scene.Scene, error)
}

var _ gltfImporter = &gltfImporterImpl{}

func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (scene.Scene, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return imp.importFromParser(parser, name)
}

func (imp *gltfImporterImpl) ImportReader(name string, r io.Reader, isGLB bool) (scene.Scene, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, err
	}
	return imp.importFromParser(parser, name)
}

// importFromParser builds the node tree of the document's default scene under a synthetic root.
// Nodes not reachable from the default scene are ignored. A scene with no scenes array uses every
// node that is nobody's child as a root.
func (imp *gltfImporterImpl) importFromParser(p gltfParser, fallbackName string) (scene.Scene, error) {
	doc := p.Document()

	materials, err := extractMaterials(p)
	if err != nil {
		return nil, err
	}
	meshes, err := extractMeshes(p, materials)
	if err != nil {
		return nil, err
	}
	lights := gltfDocumentLights(doc)

	roots, name := gltfSceneRoots(doc)
	if name == "" {
		name = fallbackName
	}

	b := &gltfTreeBuilder{
		doc:     doc,
		meshes:  meshes,
		lights:  lights,
		visited: make(map[int]bool, len(doc.Nodes)),
	}
	root := scene.NewNode(name, mgl32.Ident4())
	for _, idx := range roots {
		if err := b.build(root, idx); err != nil {
			return nil, err
		}
	}

	cam := b.camera
	if cam == nil {
		cam = camera.NewCamera()
	}
	return scene.NewScene(name, root, scene.WithCamera(cam)), nil
}

func gltfSceneRoots(doc *gltfDocument) ([]int, string) {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes, doc.Scenes[idx].Name
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots, ""
}

// gltfTreeBuilder converts glTF nodes into scene nodes, remembering the first camera it meets.
type gltfTreeBuilder struct {
	doc     *gltfDocument
	meshes  [][]*scene.Mesh
	lights  []gltfLightTemplate
	visited map[int]bool
	camera  camera.Camera
}

func (b *gltfTreeBuilder) build(parent *scene.Node, idx int) error {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return fmt.Errorf("node index %d out of range", idx)
	}
	if b.visited[idx] {
		return fmt.Errorf("node %d appears more than once in the hierarchy", idx)
	}
	b.visited[idx] = true

	gn := b.doc.Nodes[idx]
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", idx)
	}
	n := parent.AddChild(scene.NewNode(name, gltfNodeLocal(gn)))

	if gn.Mesh != nil {
		if *gn.Mesh < 0 || *gn.Mesh >= len(b.meshes) {
			return fmt.Errorf("node %q references missing mesh %d", name, *gn.Mesh)
		}
		n.Meshes = b.meshes[*gn.Mesh]
	}

	if gn.Extensions != nil && gn.Extensions.LightsPunctual != nil {
		li := gn.Extensions.LightsPunctual.Light
		if li < 0 || li >= len(b.lights) {
			return fmt.Errorf("node %q references missing light %d", name, li)
		}
		n.Light = b.lights[li].instantiate(name)
	}

	if gn.Camera != nil && b.camera == nil {
		if *gn.Camera < 0 || *gn.Camera >= len(b.doc.Cameras) {
			return fmt.Errorf("node %q references missing camera %d", name, *gn.Camera)
		}
		b.camera = gltfCameraAt(b.doc.Cameras[*gn.Camera], n.World())
	}

	for _, c := range gn.Children {
		if err := b.build(n, c); err != nil {
			return err
		}
	}
	return nil
}

// gltfNodeLocal returns the node matrix, or T * R * S when the node uses TRS.
func gltfNodeLocal(n gltfNode) mgl32.Mat4 {
	if n.Matrix != nil {
		return mgl32.Mat4(*n.Matrix)
	}
	m := mgl32.Ident4()
	if t := n.Translation; t != nil {
		m = mgl32.Translate3D(t[0], t[1], t[2])
	}
	if r := n.Rotation; r != nil {
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
		m = m.Mul4(q.Normalize().Mat4())
	}
	if s := n.Scale; s != nil {
		m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return m
}

// gltfCameraAt places a perspective camera at a node. glTF cameras look down their local -Z with
// +Y up. Orthographic cameras fall back to the default projection at the node's pose.
func gltfCameraAt(gc gltfCamera, world mgl32.Mat4) camera.Camera {
	eye := world.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	forward := world.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
	up := world.Mul4x1(mgl32.Vec4{0, 1, 0, 0}).Vec3()
	if forward.Len() == 0 {
		forward = mgl32.Vec3{0, 0, -1}
	}
	if up.Len() == 0 {
		up = mgl32.Vec3{0, 1, 0}
	}

	opts := []camera.CameraBuilderOption{
		camera.WithEye(eye),
		camera.WithTarget(eye.Add(forward.Normalize())),
		camera.WithUp(up.Normalize()),
	}
	if p := gc.Perspective; gc.Type == "perspective" && p != nil {
		if p.Yfov > 0 {
			opts = append(opts, camera.WithFov(p.Yfov))
		}
		if p.AspectRatio != nil && *p.AspectRatio > 0 {
			opts = append(opts, camera.WithAspect(*p.AspectRatio))
		}
		if p.Znear > 0 {
			opts = append(opts, camera.WithNear(p.Znear))
		}
		if p.Zfar != nil && *p.Zfar > p.Znear {
			opts = append(opts, camera.WithFar(*p.Zfar))
		}
	}
	return camera.NewCamera(opts...)
}

// gltfLightTemplate is a document-level light definition. Each node referencing it gets its own
// light.Light.
type gltfLightTemplate struct {
	name      string
	lightType light.LightType
	color     mgl32.Vec3
	power     float32
}

// gltfDocumentLights converts the KHR_lights_punctual table. Spot and directional lights become
// point lights at their node; a light typed "ambient" or whose name contains "ambient" becomes an
// ambient light. Intensity is used as power unchanged.
func gltfDocumentLights(doc *gltfDocument) []gltfLightTemplate {
	if doc.Extensions == nil || doc.Extensions.LightsPunctual == nil {
		return nil
	}
	src := doc.Extensions.LightsPunctual.Lights
	out := make([]gltfLightTemplate, len(src))
	for i, gl := range src {
		t := gltfLightTemplate{
			name:      gl.Name,
			lightType: light.LightTypePoint,
			color:     mgl32.Vec3{1, 1, 1},
			power:     1,
		}
		if gl.Type == "ambient" || strings.Contains(strings.ToLower(gl.Name), "ambient") {
			t.lightType = light.LightTypeAmbient
		}
		if gl.Color != nil {
			t.color = *gl.Color
		}
		if gl.Intensity != nil {
			t.power = *gl.Intensity
		}
		out[i] = t
	}
	return out
}

func (t gltfLightTemplate) instantiate(nodeName string) light.Light {
	name := t.name
	if name == "" {
		name = nodeName
	}
	return light.NewLight(t.lightType,
		light.WithName(name),
		light.WithColor(t.color[0], t.color[1], t.color[2]),
		light.WithPower(t.power),
	)
}
