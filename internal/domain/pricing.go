package domain

// pricing.go — valoración cerrada de opciones binarias.
//
// Un mercado "¿cierra el spot por encima del threshold?" es una opción binaria
// cash-or-nothing: su precio justo es N(d2) con d2 = buffer / (vol·√t).
// Todas las funciones son puras y devuelven valores degenerados pero válidos
// en los bordes numéricos — nunca NaN ni panic.

import "math"

const (
	// Vol mínima/máxima que aceptamos al invertir el precio de mercado.
	impliedVolFloor = 0.0001
	impliedVolCap   = 0.1
	// Vol devuelta cuando el mercado está exactamente at-the-money.
	atmVolDefault = 0.003
)

// NormCDF aproxima la CDF normal estándar con el polinomio de
// Abramowitz-Stegun para erf aplicado sobre exp(-x²/2). No es la CDF exacta:
// se desvía hasta ~0.037 lejos de cero, y todos los precios del sistema
// están calibrados contra esta fórmula. Simétrica vía signo.
func NormCDF(x float64) float64 {
	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x/2.0)
	return 0.5 * (1.0 + sign*y)
}

// Coeficientes del algoritmo de Acklam para la inversa de la CDF normal.
var (
	acklamA = [6]float64{
		-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00,
	}
	acklamB = [5]float64{
		-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01,
	}
	acklamC = [6]float64{
		-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00,
	}
	acklamD = [4]float64{
		7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00,
	}
)

// NormInvCDF devuelve la inversa de la CDF normal estándar (algoritmo de
// Acklam, aproximación racional por regiones). En los bordes del dominio
// devuelve ±Inf en lugar de fallar.
func NormInvCDF(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	if p >= 1 {
		return math.Inf(1)
	}

	const pLow = 0.02425
	a, b, c, d := acklamA, acklamB, acklamC, acklamD

	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p <= 1-pLow:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	default:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}
}

// FairYesPrice devuelve el precio justo del token YES dado el buffer
// (distancia normalizada del spot al threshold), la volatilidad y la fracción
// de ventana restante. Con vol o tiempo no positivos el resultado es certeza
// degenerada: 1.0 si el spot ya está por encima, 0.0 si no.
func FairYesPrice(buffer, volatility, timeFraction float64) float64 {
	if volatility <= 0 || timeFraction <= 0 {
		return certainty(buffer)
	}

	adjustedVol := volatility * math.Sqrt(timeFraction)
	if adjustedVol < 1e-10 {
		return certainty(buffer)
	}

	d2 := buffer / adjustedVol
	return clamp(NormCDF(d2), 0.001, 0.999)
}

// ImpliedVolatility invierte FairYesPrice: qué volatilidad haría que el precio
// de mercado fuera justo. ok=false cuando el precio está fuera de (0,1) o no
// queda tiempo — el caller debe sustituir por su vol histórica.
// At-the-money la inversión degenera y devolvemos la vol por defecto.
func ImpliedVolatility(yesPrice, buffer, timeFraction float64) (vol float64, ok bool) {
	if yesPrice <= 0 || yesPrice >= 1 || timeFraction <= 0 {
		return 0, false
	}
	if math.Abs(buffer) < 1e-10 {
		return atmVolDefault, true
	}

	d2 := NormInvCDF(yesPrice)
	if math.Abs(d2) < 1e-10 {
		return atmVolDefault, true
	}

	vol = math.Abs(buffer / (d2 * math.Sqrt(timeFraction)))
	return clamp(vol, impliedVolFloor, impliedVolCap), true
}

func certainty(buffer float64) float64 {
	if buffer > 0 {
		return 1.0
	}
	return 0.0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
