package meshcache

import (
	"context"
	"errors"
	"fmt"
)

// Copy appends every mesh and transform sample of r to mesh object
// meshIndex of w. The reader is rewound first and left at its last sample.
// It returns the number of mesh samples copied.
//
// w's object must declare the same attributes, in the same order, as r's
// schema; slots are copied positionally.
func Copy(ctx context.Context, r *Reader, w *Writer, meshIndex int) (int, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	if _, err := w.object(ctx, meshIndex); err != nil {
		return 0, err
	}

	copied := 0
	if r.NumSamples() > 0 {
		if err := r.Seek(ctx, 0); err != nil {
			return 0, err
		}
		for {
			if err := ctx.Err(); err != nil {
				return copied, err
			}
			if err := w.AddFullSample(ctx, meshIndex, r.Current()); err != nil {
				return copied, fmt.Errorf("copy sample %d: %w", r.Index(), err)
			}
			copied++
			err := r.StepForward(ctx)
			if errors.Is(err, ErrOutOfRange) {
				break
			}
			if err != nil {
				return copied, err
			}
		}
	}

	for i := 0; i < r.NumTransformSamples(); i++ {
		m, err := r.TransformMatrix(ctx, i)
		if err != nil {
			return copied, err
		}
		if err := w.AddTransformMatrix(ctx, meshIndex, m); err != nil {
			return copied, fmt.Errorf("copy transform %d: %w", i, err)
		}
	}
	return copied, nil
}

// TranscodeSpec describes a copy of one mesh object into a new archive.
type TranscodeSpec struct {
	InPath        string
	OutPath       string
	TransformPath string
	MeshPath      string
	Attributes    []AttributeDescriptor

	// InOptions and OutOptions configure the reader and the writer, e.g. a
	// different store or compression for the output.
	InOptions  []Option
	OutOptions []Option

	// Validate checks every sample before it is written.
	Validate bool
}

// Transcode copies one mesh object from spec.InPath into a new archive at
// spec.OutPath using the same declarations and, unless OutOptions say
// otherwise, the same time sampling. It returns the number of mesh samples
// written.
func Transcode(ctx context.Context, spec TranscodeSpec) (n int, err error) {
	r, err := Open(ctx, spec.InPath, spec.TransformPath, spec.MeshPath, spec.Attributes, spec.InOptions...)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if spec.Validate {
		if err := validateAll(ctx, r); err != nil {
			return 0, err
		}
	}

	opts := append([]Option{WithTimeSampling(r.TimeSampling())}, spec.OutOptions...)
	// Re-declare only what the reader accepted so slots line up.
	w, err := CreateSingle(ctx, spec.OutPath, r.TransformPath(), r.MeshPath()[len(r.TransformPath()):], r.Schema().Declarations(), opts...)
	if err != nil {
		return 0, err
	}
	n, err = Copy(ctx, r, w, 0)
	if err != nil {
		_ = w.Abort(ctx)
		return n, err
	}
	return n, w.Close(ctx)
}

func validateAll(ctx context.Context, r *Reader) error {
	for i := 0; i < r.NumSamples(); i++ {
		if err := r.Seek(ctx, i); err != nil {
			return err
		}
		if err := r.Current().Validate(r.Schema()); err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
	}
	return nil
}
