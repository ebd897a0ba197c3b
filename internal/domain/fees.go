package domain

// EntryFee devuelve el coste de transacción por unidad al entrar a un precio
// dado. Polymarket no cobra fee de entrada. Kalshi cobra
// takerRate × p × (1-p): máximo en p=0.5 y cero en los extremos, reflejo de la
// varianza cuadrática del payout en esa plataforma. takerRate viene de config,
// nunca hardcodeado aquí.
func EntryFee(platform Platform, price, takerRate float64) float64 {
	if platform == PlatformKalshi {
		return takerRate * price * (1.0 - price)
	}
	return 0
}
