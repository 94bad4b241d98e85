package decompose

// PCAOption is a function that configures PCA
type PCAOption func(*PCA)

// WithNComponents sets the number of components to keep
func WithNComponents(n int) PCAOption {
	return func(p *PCA) {
		p.nComponents = n
	}
}

// WithWhiten enables whitening: each component is scaled to unit variance
func WithWhiten(whiten bool) PCAOption {
	return func(p *PCA) {
		p.whiten = whiten
	}
}

// WithCenter sets whether to subtract the per-feature mean before the SVD
func WithCenter(center bool) PCAOption {
	return func(p *PCA) {
		p.center = center
	}
}
