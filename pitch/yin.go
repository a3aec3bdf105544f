package pyin

import "gonum.org/v1/gonum/dsp/fourier"

/*------------------------------------------------------------------
 *
 * Purpose:	FFT-accelerated YIN difference function, its cumulative
 *		mean normalized form, local-minima enumeration and
 *		sub-sample parabolic refinement.
 *
 *----------------------------------------------------------------*/

// differenceFunction computes YIN's d(tau) for tau in [0, maxTau] via
// FFT-based autocorrelation: zero-pad to the next power of two >= 2*N,
// forward/inverse real FFT through the power spectrum (the inverse is
// unnormalized, so its output is scaled by 1/fftLen), then combine with
// a prefix-sum-of-squares table.
func differenceFunction(frame []float64, maxTau int) []float64 {
	n := len(frame)
	if maxTau > n-1 {
		maxTau = n - 1
	}

	fftLen := nextPow2(2 * n)
	padded := make([]float64, fftLen)
	copy(padded, frame)

	fft := fourier.NewFFT(fftLen)
	coeff := fft.Coefficients(nil, padded)

	power := make([]complex128, len(coeff))
	for i, c := range coeff {
		re, im := real(c), imag(c)
		power[i] = complex(re*re+im*im, 0)
	}
	autocorr := fft.Sequence(nil, power)

	// Prefix sum of squares: prefix[i] = sum_{j<i} frame[j]^2.
	prefix := make([]float64, n+1)
	for i, x := range frame {
		prefix[i+1] = prefix[i] + x*x
	}

	scale := 1 / float64(fftLen)
	diff := make([]float64, maxTau+1)
	for tau := 1; tau <= maxTau; tau++ {
		diff[tau] = prefix[n-tau] + (prefix[n] - prefix[tau]) - 2*autocorr[tau]*scale
	}
	return diff
}

// cumulativeMeanNormalizedDifference computes YIN's d'(tau): cmnd[0] = 1,
// and for tau >= 1, diff[tau]*tau / running-sum(diff[1..tau]), defaulting
// to 1 when the running sum is zero.
func cumulativeMeanNormalizedDifference(diff []float64) []float64 {
	cmnd := make([]float64, len(diff))
	if len(cmnd) == 0 {
		return cmnd
	}
	cmnd[0] = 1
	runningSum := 0.0
	for tau := 1; tau < len(diff); tau++ {
		runningSum += diff[tau]
		if runningSum == 0 {
			cmnd[tau] = 1
		} else {
			cmnd[tau] = diff[tau] * float64(tau) / runningSum
		}
	}
	return cmnd
}

// localMinima returns the ascending tau values where cmnd has a strict
// left neighbor greater and a right neighbor greater-or-equal.
func localMinima(cmnd []float64) []int {
	var minima []int
	for tau := 1; tau < len(cmnd)-1; tau++ {
		if cmnd[tau-1] > cmnd[tau] && cmnd[tau] <= cmnd[tau+1] {
			minima = append(minima, tau)
		}
	}
	return minima
}

// parabolicInterpolation fits a parabola through (tau-1, tau, tau+1) and
// returns the sub-sample vertex, falling back to tau verbatim at array
// boundaries or when the fit is numerically degenerate.
func parabolicInterpolation(cmnd []float64, tau int) float64 {
	if tau <= 0 || tau >= len(cmnd)-1 {
		return float64(tau)
	}
	y1, y2, y3 := cmnd[tau-1], cmnd[tau], cmnd[tau+1]
	denom := y1 - 2*y2 + y3
	if denom < 1e-12 && denom > -1e-12 {
		return float64(tau)
	}
	return float64(tau) + 0.5*(y1-y3)/denom
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
