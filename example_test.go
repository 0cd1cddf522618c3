package meshcache_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/meshcache"
	"github.com/hupe1980/meshcache/blobstore"
)

var exampleDecls = []meshcache.AttributeDescriptor{
	{Name: "height", Type: meshcache.Scalar, Scope: meshcache.ScopePoint},
}

// writeQuad stores two samples of a unit quad moving up along z.
func writeQuad(ctx context.Context, store blobstore.BlobStore) error {
	w, err := meshcache.CreateSingle(ctx, "quad", "xform", "mesh", exampleDecls, meshcache.WithBlobStore(store))
	if err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		z := float32(i)
		s := &meshcache.GeometrySample{
			Positions: []meshcache.Vec3{
				{0, 0, z}, {1, 0, z}, {1, 1, z}, {0, 1, z},
			},
			FaceIndices: []int32{0, 1, 2, 3},
			FaceCounts:  []int32{4},
			Scalars:     [][]float32{{z, z, z, z}},
		}
		if err := w.AddFullSample(ctx, 0, s); err != nil {
			_ = w.Abort(ctx)
			return err
		}
	}
	return w.Close(ctx)
}

// ExampleCreateSingle writes a small animated quad into an in-memory store.
func ExampleCreateSingle() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	w, err := meshcache.CreateSingle(ctx, "quad", "xform", "mesh", exampleDecls, meshcache.WithBlobStore(store))
	if err != nil {
		log.Fatal(err)
	}

	s := &meshcache.GeometrySample{
		Positions:   []meshcache.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		FaceIndices: []int32{0, 1, 2, 3},
		FaceCounts:  []int32{4},
		Scalars:     [][]float32{{0, 0, 0, 0}},
	}
	if err := w.AddFullSample(ctx, 0, s); err != nil {
		log.Fatal(err)
	}
	fmt.Println("samples:", w.NumSamples(0))

	if err := w.Close(ctx); err != nil {
		log.Fatal(err)
	}
	// Output: samples: 1
}

// ExampleOpen steps through the samples of an archive.
func ExampleOpen() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	if err := writeQuad(ctx, store); err != nil {
		log.Fatal(err)
	}

	r, err := meshcache.Open(ctx, "quad", "xform", "mesh", exampleDecls, meshcache.WithBlobStore(store))
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	for {
		height, err := r.ScalarAttribute("height")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(r.Index(), r.Current().Positions[2], height[0])
		if r.Index() == r.NumSamples()-1 {
			break
		}
		if err := r.StepForward(ctx); err != nil {
			log.Fatal(err)
		}
	}
	// Output:
	// 0 [1 1 0] 0
	// 1 [1 1 1] 1
}

// ExampleTranscode copies a mesh into a second store.
func ExampleTranscode() {
	ctx := context.Background()
	src := blobstore.NewMemoryStore()
	dst := blobstore.NewMemoryStore()
	if err := writeQuad(ctx, src); err != nil {
		log.Fatal(err)
	}

	n, err := meshcache.Transcode(ctx, meshcache.TranscodeSpec{
		InPath:        "quad",
		OutPath:       "copy",
		TransformPath: "xform",
		MeshPath:      "mesh",
		Attributes:    exampleDecls,
		InOptions:     []meshcache.Option{meshcache.WithBlobStore(src)},
		OutOptions:    []meshcache.Option{meshcache.WithBlobStore(dst)},
		Validate:      true,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("copied:", n)
	// Output: copied: 2
}
